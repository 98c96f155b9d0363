package reviews

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningKeyID() string
	GetRetiredSigningKeys() map[string]string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetConfirmationTimeout() time.Duration
	GetContextKey() string
	GetTokenLookup() string
	GetAuthScheme() string
}

// MailConfig holds options for confirmation mails
type MailConfig interface {
	GetFrom() string
	GetSubject() string
}

// defLogger writes "[LVL] REVIEWS msg key=value ..." lines to stdout
type defLogger struct {
	out io.Writer
}

func (d defLogger) Error(msg string, args ...any) {
	d.print("ERR", msg, args)
}

func (d defLogger) Warn(msg string, args ...any) {
	d.print("WRN", msg, args)
}

func (d defLogger) Info(msg string, args ...any) {
	d.print("INF", msg, args)
}

func (d defLogger) Debug(msg string, args ...any) {
	d.print("DBG", msg, args)
}

func (d defLogger) print(level, msg string, args []any) {
	out := d.out
	if out == nil {
		out = os.Stdout
	}

	var b strings.Builder
	b.WriteString("[" + level + "] REVIEWS ")
	b.WriteString(strings.TrimRight(msg, "\n"))
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fmt.Fprintf(&b, " !BADKEY=%v", args[i])
			break
		}
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	b.WriteByte('\n')
	_, _ = io.WriteString(out, b.String())
}

// ResolveLogger returns l or the stdout fallback when l is nil
func ResolveLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}

// NewTokenServiceFromConfig wires a token service from cfg
func NewTokenServiceFromConfig(cfg Config, logger Logger) *TokenServiceImpl {
	retired := make(map[string][]byte, len(cfg.GetRetiredSigningKeys()))
	for kid, key := range cfg.GetRetiredSigningKeys() {
		retired[kid] = []byte(key)
	}

	return NewTokenService(
		cfg.GetSigningKeyID(),
		[]byte(cfg.GetSigningKey()),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		WithTokenTTL(cfg.GetAccessTokenTTL(), cfg.GetRefreshTokenTTL()),
		WithRetiredSigningKeys(retired),
		WithTokenLogger(logger),
	)
}
