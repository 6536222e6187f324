// Package hostlist expands Slurm style compressed host lists, e.g.
// "pool1-1195,pool1-[2110-2111],hgx-[001-002,007]".
package hostlist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Expand returns the host names in the order they appear.
func Expand(s string) ([]string, error) {
	var hosts []string
	for _, item := range splitTop(s) {
		item = strings.TrimSpace(item)
		if len(item) == 0 {
			continue
		}
		hs, err := expandItem(item)
		if err != nil {
			return nil, errors.Wrapf(err, "hostlist %q", s)
		}
		hosts = append(hosts, hs...)
	}
	return hosts, nil
}

// splitTop splits on commas which are not inside brackets.
func splitTop(s string) []string {
	var parts []string
	var depth, begin int
	for i, c := range s {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
		case ',', ' ', '\n', '\t':
			if depth == 0 {
				parts = append(parts, s[begin:i])
				begin = i + 1
			}
		}
	}
	return append(parts, s[begin:])
}

func expandItem(item string) ([]string, error) {
	open := strings.IndexByte(item, '[')
	if open < 0 {
		if strings.IndexByte(item, ']') >= 0 {
			return nil, fmt.Errorf("unbalanced ']' in %q", item)
		}
		return []string{item}, nil
	}
	end := strings.IndexByte(item[open:], ']')
	if end < 0 {
		return nil, fmt.Errorf("unbalanced '[' in %q", item)
	}
	end += open
	prefix, body, rest := item[:open], item[open+1:end], item[end+1:]
	nums, err := expandRanges(body)
	if err != nil {
		return nil, err
	}
	suffixes, err := expandItem(rest)
	if err != nil {
		return nil, err
	}
	var hosts []string
	for _, n := range nums {
		for _, s := range suffixes {
			hosts = append(hosts, prefix+n+s)
		}
	}
	return hosts, nil
}

func expandRanges(body string) ([]string, error) {
	var nums []string
	for _, r := range strings.Split(body, ",") {
		if len(r) == 0 {
			return nil, fmt.Errorf("empty range in [%s]", body)
		}
		parts := strings.SplitN(r, "-", 2)
		lo, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, err
		}
		if len(parts) == 1 {
			nums = append(nums, parts[0])
			continue
		}
		hi, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, err
		}
		if hi < lo {
			return nil, fmt.Errorf("invalid range %s", r)
		}
		width := len(parts[0])
		for i := lo; i <= hi; i++ {
			nums = append(nums, fmt.Sprintf("%0*d", width, i))
		}
	}
	return nums, nil
}
