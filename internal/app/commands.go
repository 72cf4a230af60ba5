package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/gajzzs/webblocker/internal/blocklist"
	"github.com/gajzzs/webblocker/internal/config"
	"github.com/gajzzs/webblocker/internal/hosts"
	"github.com/gajzzs/webblocker/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// session is what every command needs once flags and config are resolved.
type session struct {
	fs     afero.Fs
	cfg    *config.Config
	log    *logrus.Logger
	opts   hosts.Options
	dryRun bool
}

func (s *session) editor() (*hosts.Editor, error) {
	return hosts.NewEditor(s.fs, s.opts, logging.WithSubsys(s.log, "hosts"))
}

type rootFlags struct {
	block         bool
	unblock       bool
	list          bool
	purgeUnmarked bool
}

type globalFlags struct {
	configFile string
	dryRun     bool
	noBackup   bool
}

// NewRootCommand builds the webblocker command tree working on the real
// filesystem.
func NewRootCommand() *cobra.Command {
	return newRootCommand(afero.NewOsFs())
}

func newRootCommand(fsys afero.Fs) *cobra.Command {
	v := config.New()
	global := &globalFlags{}
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "webblocker",
		Short: "Block and unblock websites through a managed hosts file section",
		Long: `webblocker redirects a list of domains by maintaining a block section
between "` + hosts.StartMarker + `" and "` + hosts.EndMarker + `" lines
in the hosts file. Lines outside the section are never touched, and the
original file is backed up to <hosts>` + hosts.BackupPath("") + ` before every change.`,
		Example: `  webblocker --block --hosts hosts.test      # write markers and blocked sites to hosts.test
  webblocker --unblock --hosts hosts.test    # remove the block section
  webblocker --block --dry-run               # show the change without writing it`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flags.block && !flags.unblock && !flags.list {
				return cmd.Help()
			}
			s, err := setup(cmd, fsys, v, global)
			if err != nil {
				return err
			}
			switch {
			case flags.block:
				return runBlock(cmd.OutOrStdout(), s)
			case flags.unblock:
				return runUnblock(cmd.OutOrStdout(), s, flags.purgeUnmarked)
			default:
				return runList(cmd.OutOrStdout(), s)
			}
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.Flags().BoolVar(&flags.block, "block", false, "Add or refresh the block section")
	cmd.Flags().BoolVar(&flags.unblock, "unblock", false, "Remove the block section")
	cmd.Flags().BoolVar(&flags.list, "list", false, "List blocked domains")
	cmd.Flags().BoolVar(&flags.purgeUnmarked, "purge-unmarked", false,
		"With --unblock, also remove unmarked lines for the configured domains when no block section exists")
	cmd.MarkFlagsMutuallyExclusive("block", "unblock", "list")

	pf := cmd.PersistentFlags()
	pf.StringVarP(&global.configFile, "config", "c", "", "Config file (default: search /etc/webblocker and the user config dir)")
	pf.String("hosts", "", "Path to the hosts file to edit (default: "+hosts.DefaultPath()+")")
	pf.String("redirect", "", "Address blocked domains resolve to (default: "+config.DefaultRedirect+")")
	pf.StringSlice("domain", nil, "Domain to block, repeatable; replaces the configured list")
	pf.String("domains-file", "", "File with domains to block, one or more per line")
	pf.String("backup", "", "Backup policy: always, once or never (default: always)")
	pf.BoolVar(&global.noBackup, "no-backup", false, "Do not create a backup file before modifying hosts")
	pf.BoolVar(&global.dryRun, "dry-run", false, "Show changes without modifying files")
	pf.String("log-level", "", "Log level: debug, info, warn or error (default: "+logging.DefaultLevel+")")

	cmd.AddCommand(
		newRestoreCommand(fsys, v, global),
		newConfigCommand(fsys, v, global),
	)
	return cmd
}

func newRestoreCommand(fsys afero.Fs, v *viper.Viper, global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Replace the hosts file with its " + hosts.BackupPath("") + " backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := setup(cmd, fsys, v, global)
			if err != nil {
				return err
			}
			editor, err := s.editor()
			if err != nil {
				return err
			}
			res, err := editor.Restore(s.cfg.Hosts, s.dryRun)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), res, "Restored %s from backup")
		},
	}
}

func newConfigCommand(fsys afero.Fs, v *viper.Viper, global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect webblocker configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := setup(cmd, fsys, v, global)
			if err != nil {
				return err
			}
			return s.cfg.Write(cmd.OutOrStdout())
		},
	})
	return cmd
}

// setup resolves configuration from flags, env and file.
func setup(cmd *cobra.Command, fsys afero.Fs, v *viper.Viper, global *globalFlags) (*session, error) {
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	cfg, err := config.Load(v, global.configFile)
	if err != nil {
		return nil, err
	}
	if global.noBackup {
		cfg.Backup = string(hosts.BackupNever)
	}

	logger, err := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"config": v.ConfigFileUsed(),
		"hosts":  cfg.Hosts,
	}).Debug("Configuration loaded")

	opts, err := cfg.EditorOptions()
	if err != nil {
		return nil, err
	}
	return &session{fs: fsys, cfg: cfg, log: logger, opts: opts, dryRun: global.dryRun}, nil
}

func runBlock(out io.Writer, s *session) error {
	domains, err := s.cfg.BlockList(s.fs)
	if err != nil {
		return err
	}
	if len(domains) == 0 {
		return errors.New("no domains configured: use --domain, --domains-file or the domains config key")
	}

	editor, err := s.editor()
	if err != nil {
		return err
	}
	res, err := editor.Block(s.cfg.Hosts, domains, s.dryRun)
	if err != nil {
		return err
	}
	return report(out, res, fmt.Sprintf("Block section with %d entries written to %%s", len(res.Domains)))
}

func runUnblock(out io.Writer, s *session, purge bool) error {
	if purge {
		domains, err := s.cfg.BlockList(s.fs)
		if err != nil {
			return err
		}
		if s.opts.PurgeUnmarked, err = blocklist.Normalize(domains); err != nil {
			return err
		}
	}

	editor, err := s.editor()
	if err != nil {
		return err
	}
	res, err := editor.Unblock(s.cfg.Hosts, s.dryRun)
	if err != nil {
		return err
	}
	if res.Purged > 0 {
		return report(out, res, fmt.Sprintf("Removed %d unmarked entries from %%s", res.Purged))
	}
	return report(out, res, "Block section removed from %s")
}

func runList(out io.Writer, s *session) error {
	editor, err := s.editor()
	if err != nil {
		return err
	}
	domains, err := editor.List(s.cfg.Hosts)
	if err != nil {
		return err
	}
	if len(domains) == 0 {
		fmt.Fprintf(out, "No blocked entries in %s\n", s.cfg.Hosts)
		return nil
	}
	for _, d := range domains {
		fmt.Fprintln(out, d)
	}
	return nil
}

// report prints the diff of a dry run, or a one line summary of the change.
// done is a format with a single %s for the path.
func report(out io.Writer, res *hosts.Result, done string) error {
	if !res.Changed {
		fmt.Fprintf(out, "No changes needed for %s\n", res.Path)
		return nil
	}
	if res.DryRun {
		diff, err := res.Diff()
		if err != nil {
			return fmt.Errorf("failed to render diff: %w", err)
		}
		fmt.Fprintf(out, "DRY-RUN: would apply the following changes:\n%s", diff)
		return nil
	}
	fmt.Fprintf(out, done+"\n", res.Path)
	if res.BackupPath != "" {
		fmt.Fprintf(out, "Backup created: %s\n", res.BackupPath)
	}
	return nil
}
