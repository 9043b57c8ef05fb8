package services

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
)

var (
	// @someone@example.com, the leading @ must not follow a word character
	emailMentionPattern = regexp.MustCompile(`(?:^|[^\w.])@([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
	// @display_name, underscores stand for spaces
	nameMentionPattern = regexp.MustCompile(`(?:^|[^\w.@])@(\w+)`)
	// tags accept any letter or digit, not only ASCII
	tagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
)

// ResolvedMention is a mention matched (or not) against local accounts
type ResolvedMention struct {
	Email string
	Name  *string
}

// ExtractMentions returns the @email and @name mentions in text, de-duplicated,
// in order of first appearance.
func ExtractMentions(text string) []string {
	type hit struct {
		pos   int
		value string
	}
	var hits []hit

	masked := []byte(text)
	for _, m := range emailMentionPattern.FindAllStringSubmatchIndex(text, -1) {
		hits = append(hits, hit{pos: m[2], value: text[m[2]:m[3]]})
		// blank the email so its domain is not read as a name mention
		for i := m[2] - 1; i < m[3]; i++ {
			masked[i] = ' '
		}
	}
	for _, m := range nameMentionPattern.FindAllSubmatchIndex(masked, -1) {
		hits = append(hits, hit{pos: m[2], value: string(masked[m[2]:m[3]])})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	values := make([]string, 0, len(hits))
	for _, h := range hits {
		values = append(values, h.value)
	}
	return dedupe(values, false)
}

// ExtractTags returns the #tags in text lower-cased and de-duplicated
func ExtractTags(text string) []string {
	var tags []string
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		tags = append(tags, m[1])
	}
	return dedupe(tags, true)
}

// NormalizeTags lower-cases, trims and de-duplicates user supplied tag names
func NormalizeTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return dedupe(cleaned, true)
}

func dedupe(values []string, lower bool) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if lower {
			v = strings.ToLower(v)
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func isEmailMention(mention string) bool {
	at := strings.Index(mention, "@")
	return at > 0 && strings.Contains(mention[at+1:], ".")
}

// MentionResolver maps raw mentions onto accounts
type MentionResolver struct {
	accounts AccountService
}

// NewMentionResolver creates a resolver backed by the account store
func NewMentionResolver(accounts AccountService) *MentionResolver {
	return &MentionResolver{accounts: accounts}
}

// Resolve looks every mention up. Email mentions are kept even when no account
// matches; name mentions are tried as display name ("_" read as a space), then as
// an email local part, and dropped when neither matches.
func (r *MentionResolver) Resolve(ctx context.Context, mentions []string) ([]ResolvedMention, error) {
	resolved := make([]ResolvedMention, 0, len(mentions))
	seen := make(map[string]struct{}, len(mentions))

	for _, mention := range mentions {
		var (
			email string
			name  *string
		)

		if isEmailMention(mention) {
			email = strings.ToLower(mention)
			account, err := r.accounts.FindByEmail(ctx, email)
			switch {
			case err == nil:
				name = &account.DisplayName
			case !errors.Is(err, ErrNotFound):
				return nil, err
			}
		} else {
			account, err := r.accounts.FindByDisplayName(ctx, strings.ReplaceAll(mention, "_", " "))
			if errors.Is(err, ErrNotFound) {
				account, err = r.accounts.FindByEmailLocalPart(ctx, mention)
			}
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			email = account.Email
			name = &account.DisplayName
		}

		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		resolved = append(resolved, ResolvedMention{Email: email, Name: name})
	}
	return resolved, nil
}
