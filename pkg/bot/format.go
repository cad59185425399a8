package bot

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bigneek/primeflare/pkg/callerctx"
	"github.com/bigneek/primeflare/pkg/quota"
	"github.com/bigneek/primeflare/pkg/report"
	"github.com/bigneek/primeflare/pkg/sieve"
)

// maxReplyLen is Telegram's message size limit.
const maxReplyLen = 4096

// Replies use Telegram HTML: <b>, <i>, <code>, <pre>.

func formatResult(res sieve.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "NthPrime(%s) = <b>%s</b>\n", groupDigits(res.Index), groupDigits(res.Prime))
	fmt.Fprintf(&sb, "<i>search limit %s, %d segment(s) of %s, %d base primes, %v</i>",
		groupDigits(res.Limit), res.Segments, groupDigits(res.SegmentSize), res.BasePrimes, res.Elapsed.Round(time.Microsecond))
	return sb.String()
}

func formatReport(rep report.Report) string {
	return fmt.Sprintf("Published NthPrime(%s) = <b>%s</b>\nreport <code>%s</code>",
		groupDigits(rep.Index), groupDigits(rep.Prime), rep.ID)
}

func formatUsage(c callerctx.Caller, u *quota.Usage, limits quota.Limits) string {
	head := fmt.Sprintf("Usage for <code>%s</code>:", escapeHTML(c.ID))
	if c.Username != "" {
		head = fmt.Sprintf("Usage for %s (<code>%s</code>):", escapeHTML(c.Label()), escapeHTML(c.ID))
	}
	lines := []string{
		head,
		fmt.Sprintf("  Requests: %d%s", u.Requests, limitSuffix(limits.MaxRequests)),
		fmt.Sprintf("  Largest index: %s", groupDigits(u.LargestIndex)),
	}
	if limits.MaxIndex > 0 {
		lines = append(lines, fmt.Sprintf("  Max index: %s", groupDigits(limits.MaxIndex)))
	}
	return strings.Join(lines, "\n")
}

func limitSuffix(limit int64) string {
	if limit == 0 {
		return ""
	}
	return fmt.Sprintf(" / %d", limit)
}

// groupDigits renders n with comma thousands separators.
func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var sb strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}

const (
	ellipsis = "\n..."
	// room for closing the deepest nesting the formatters emit
	closeReserve = len("</pre></code></b></i>")
)

// truncateReply cuts s to at most maxLen bytes. The cut never splits a
// rune, a tag or an entity, prefers a line break, and closes any tag left
// open so Telegram still parses the HTML.
func truncateReply(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	n := max(maxLen-len(ellipsis)-closeReserve, 0)
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	cut := s[:n]
	if i := strings.LastIndexByte(cut, '<'); i > strings.LastIndexByte(cut, '>') {
		cut = cut[:i]
	}
	if i := strings.LastIndexByte(cut, '&'); i > strings.LastIndexByte(cut, ';') {
		cut = cut[:i]
	}
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}

	var sb strings.Builder
	sb.WriteString(cut)
	open := openTags(cut)
	for i := len(open) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "</%s>", open[i])
	}
	sb.WriteString(ellipsis)
	return sb.String()
}

// openTags returns the tags still open at the end of s, outermost first.
func openTags(s string) []string {
	var open []string
	for {
		i := strings.IndexByte(s, '<')
		if i < 0 {
			return open
		}
		j := strings.IndexByte(s[i:], '>')
		if j < 0 {
			return open
		}
		tag := s[i+1 : i+j]
		s = s[i+j+1:]
		if name, closing := strings.CutPrefix(tag, "/"); closing {
			if k := len(open); k > 0 && open[k-1] == name {
				open = open[:k-1]
			}
			continue
		}
		name, _, _ := strings.Cut(tag, " ")
		open = append(open, name)
	}
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
