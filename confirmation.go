package reviews

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/hkdf"
)

// DefaultConfirmationTimeout is how long an issued code stays valid
const DefaultConfirmationTimeout = 72 * time.Hour

const confirmationKeyInfo = "reviews.confirmation"

// codeEpoch keeps the base36 timestamp short
var codeEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// CodeGenerator derives confirmation codes from the user's current
// state. Nothing is stored: a code verifies only while the fields it was
// derived from are unchanged and the timeout has not elapsed.
type CodeGenerator struct {
	key     []byte
	timeout time.Duration
	now     func() time.Time
}

// CodeGeneratorOption configures a CodeGenerator
type CodeGeneratorOption func(*CodeGenerator)

// WithCodeTimeout sets the code lifetime
func WithCodeTimeout(timeout time.Duration) CodeGeneratorOption {
	return func(g *CodeGenerator) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

// WithCodeClock replaces time.Now
func WithCodeClock(now func() time.Time) CodeGeneratorOption {
	return func(g *CodeGenerator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewCodeGenerator derives the HMAC key from secret with HKDF so the
// code key differs from the token signing key even when both come from
// the same configured secret.
func NewCodeGenerator(secret []byte, opts ...CodeGeneratorOption) (*CodeGenerator, error) {
	if len(secret) == 0 {
		return nil, errors.New("confirmation secret must not be empty", errors.CategoryInternal)
	}

	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(confirmationKeyInfo)), key); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to derive confirmation key")
	}

	g := &CodeGenerator{
		key:     key,
		timeout: DefaultConfirmationTimeout,
		now:     time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g, nil
}

// Generate returns a code bound to the user's current state
func (g *CodeGenerator) Generate(user *User) (string, error) {
	if user == nil {
		return "", errors.New("user must not be nil", errors.CategoryInternal)
	}
	return g.makeCode(user, g.elapsed(g.now())), nil
}

// Verify reports whether code was generated for the user's current state
// and is still within the timeout
func (g *CodeGenerator) Verify(user *User, code string) bool {
	if user == nil || code == "" {
		return false
	}

	tsPart, _, ok := strings.Cut(code, "-")
	if !ok {
		return false
	}

	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts < 0 {
		return false
	}

	if !hmac.Equal([]byte(g.makeCode(user, ts)), []byte(code)) {
		return false
	}

	age := g.elapsed(g.now()) - ts
	return age >= 0 && time.Duration(age)*time.Second <= g.timeout
}

func (g *CodeGenerator) elapsed(t time.Time) int64 {
	return int64(t.Sub(codeEpoch) / time.Second)
}

func (g *CodeGenerator) makeCode(user *User, ts int64) string {
	mac := hmac.New(sha256.New, g.key)
	mac.Write([]byte(hashValue(user, ts)))
	sum := mac.Sum(nil)
	return strconv.FormatInt(ts, 36) + "-" + hex.EncodeToString(sum[:16])
}

// hashValue lists every field whose change invalidates outstanding codes.
// Times are reduced to microseconds, the precision both databases keep.
func hashValue(user *User, ts int64) string {
	return fmt.Sprintf("%s|%s|%s|%t|%t|%d|%d|%d",
		user.ID,
		strings.ToLower(user.Email),
		user.Role,
		user.Active,
		user.IsStaff,
		unixMicro(user.LoggedInAt),
		unixMicro(user.UpdatedAt),
		ts,
	)
}

func unixMicro(t *time.Time) int64 {
	if t == nil || t.IsZero() {
		return 0
	}
	return t.UTC().UnixMicro()
}
