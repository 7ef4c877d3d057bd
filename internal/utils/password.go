package utils

import (
	"bufio"
	_ "embed"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// maxSimilarity is the quick-ratio at which a password counts as too close
// to a user attribute.
const maxSimilarity = 0.7

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// UserAttribute is a labelled value a password must not resemble.
type UserAttribute struct {
	Label string
	Value string
}

// CheckPasswordStrength returns one message per violated rule, or nil when
// the password is acceptable.
func CheckPasswordStrength(password string, attrs ...UserAttribute) []string {
	var problems []string
	for _, a := range attrs {
		if tooSimilar(password, a.Value) {
			problems = append(problems, "The password is too similar to the "+a.Label+".")
			break
		}
	}
	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	if isCommonPassword(password) {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		problems = append(problems, "This password is entirely numeric.")
	}
	return problems
}

var nonWord = regexp.MustCompile(`\W+`)

func tooSimilar(password, value string) bool {
	if value == "" || password == "" {
		return false
	}
	pw := strings.ToLower(password)
	value = strings.ToLower(value)
	// very long passwords cannot reach the ratio against a short value
	if len(pw) >= 10*len(value) {
		return false
	}
	parts := append(nonWord.Split(value, -1), value)
	for _, part := range parts {
		if part == "" {
			continue
		}
		if quickRatio(pw, part) >= maxSimilarity {
			return true
		}
	}
	return false
}

// quickRatio is 2*M/T where M counts characters shared by a and b as
// multisets and T is the combined length.
func quickRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	avail := make(map[rune]int, len(rb))
	for _, r := range rb {
		avail[r]++
	}
	matches := 0
	for _, r := range ra {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(total)
}

//go:embed common_passwords.txt
var commonPasswordsRaw string

var (
	commonOnce      sync.Once
	commonPasswords map[string]struct{}
)

func isCommonPassword(password string) bool {
	commonOnce.Do(func() {
		commonPasswords = make(map[string]struct{})
		sc := bufio.NewScanner(strings.NewReader(commonPasswordsRaw))
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
				commonPasswords[strings.ToLower(line)] = struct{}{}
			}
		}
	})
	_, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]
	return ok
}
