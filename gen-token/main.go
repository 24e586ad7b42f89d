// gen-token mints session tokens with the same signer kairo-api uses, for
// seeding a client session or scripting calls to the user routes.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"kairo/kairo-api/api"
)

type options struct {
	secret string
	issuer string
	ttl    time.Duration
	count  int
	prefix string
	start  int
	output string
}

func main() {
	var o options
	flags := pflag.NewFlagSet("gen-token", pflag.ExitOnError)
	flags.StringVar(&o.secret, "secret", os.Getenv("JWT_SECRET"), "HS256 signing secret (default $JWT_SECRET)")
	flags.StringVar(&o.issuer, "issuer", os.Getenv("JWT_ISSUER"), "token issuer")
	flags.DurationVar(&o.ttl, "ttl", api.DefaultTokenTTL, "token lifetime")
	flags.IntVar(&o.count, "count", 1, "number of tokens to generate")
	flags.StringVar(&o.prefix, "prefix", "user", "prefix for generated user IDs when count > 1")
	flags.IntVar(&o.start, "start", 1, "starting index for generated user IDs when count > 1")
	flags.StringVar(&o.output, "output", "", "file to write generated tokens as a JSON array")
	_ = flags.Parse(os.Args[1:])

	if err := o.validate(flags.Args()); err != nil {
		log.Fatal(err)
	}
	tokens, err := generateTokens(api.NewTokenAuth([]byte(o.secret), o.ttl, o.issuer), o.count, o.prefix, o.start, flags.Args())
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	if o.output != "" {
		if err := writeTokens(o.output, tokens); err != nil {
			log.Fatalf("write tokens: %v", err)
		}
	}
	fmt.Print(tokens[0])
}

func (o options) validate(args []string) error {
	switch {
	case o.secret == "":
		return errors.New("missing --secret or JWT_SECRET")
	case o.count < 1:
		return errors.New("count must be at least 1")
	case o.start < 1:
		return errors.New("start index must be at least 1")
	case len(args) > 0 && o.count > 1:
		return errors.New("explicit user ID cannot be provided when generating multiple tokens")
	}
	return nil
}

type issuer interface {
	Issue(userID string) (string, error)
}

func generateTokens(iss issuer, count int, prefix string, start int, args []string) ([]string, error) {
	tokens := make([]string, count)
	for i := range count {
		var userID string
		switch {
		case len(args) > 0:
			userID = args[0]
		case count == 1:
			userID = prefix
		default:
			userID = fmt.Sprintf("%s-%d", prefix, start+i)
		}
		tok, err := iss.Issue(userID)
		if err != nil {
			return nil, err
		}
		tokens[i] = tok
	}
	return tokens, nil
}

func writeTokens(path string, tokens []string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := sonic.Marshal(tokens)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
