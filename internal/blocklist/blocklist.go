// Package blocklist turns user supplied domain names into the ordered,
// duplicate free list that ends up in the hosts file.
package blocklist

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/netip"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"
	"golang.org/x/net/idna"
)

var ErrInvalidDomain = errors.New("invalid domain")

var hostnameRegex = regexp.MustCompile(`^[a-z0-9_]([a-z0-9\-_]*[a-z0-9_])?(\.[a-z0-9_]([a-z0-9\-_]*[a-z0-9_])?)*$`)

// Normalize trims and lowercases every domain, drops empty values and
// removes duplicates. The first occurrence of a domain keeps its position.
// Internationalized names are converted to their ASCII (punycode) form.
func Normalize(domains []string) ([]string, error) {
	seen := make(map[string]bool)
	result := []string{}
	for _, d := range domains {
		d = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(d)), ".")
		if d == "" {
			continue
		}
		ascii, err := toASCII(d)
		if err != nil {
			return nil, err
		}
		d = ascii
		if err := Validate(d); err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			result = append(result, d)
		}
	}
	return result, nil
}

func toASCII(domain string) (string, error) {
	for i := 0; i < len(domain); i++ {
		if domain[i] >= utf8.RuneSelf {
			ascii, err := idna.Punycode.ToASCII(domain)
			if err != nil {
				return "", fmt.Errorf("%w: %q: %v", ErrInvalidDomain, domain, err)
			}
			return ascii, nil
		}
	}
	return domain, nil
}

// Validate reports whether domain is a hostname that can appear in a hosts
// file entry.
func Validate(domain string) error {
	if len(domain) > 253 {
		return fmt.Errorf("%w: %q is longer than 253 characters", ErrInvalidDomain, domain)
	}
	if !hostnameRegex.MatchString(domain) {
		return fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	for _, label := range strings.Split(domain, ".") {
		if len(label) > 63 {
			return fmt.Errorf("%w: label %q of %q is longer than 63 characters", ErrInvalidDomain, label, domain)
		}
	}
	return nil
}

// Load reads a block list file. Each line holds one or more domains;
// '#' starts a comment. Lines in hosts format ("<address> <name>...") are
// accepted too, in which case the address is skipped.
func Load(fsys afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read block list: %w", err)
	}

	var domains []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) > 1 {
			if _, err := netip.ParseAddr(fields[0]); err == nil {
				fields = fields[1:]
			}
		}
		domains = append(domains, fields...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read block list %s: %w", path, err)
	}
	return domains, nil
}
