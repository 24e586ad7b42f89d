// Package redisconn turns a REDIS_CONNECTION_STRING into client options.
// Both redis:// URLs and the Azure style "host:port,password=...,ssl=True"
// form are accepted.
package redisconn

import (
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"
)

func Options(conn string) *redis.Options {
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(strings.TrimSpace(kv[1]), "true") {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

// New returns a client for conn.
func New(conn string) *redis.Client { return redis.NewClient(Options(conn)) }
