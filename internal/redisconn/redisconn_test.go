package redisconn

import "testing"

func TestOptionsURL(t *testing.T) {
	opts := Options("redis://:secret@localhost:6380/2")
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.TLSConfig != nil {
		t.Fatal("plain redis URL should not enable TLS")
	}
}

func TestOptionsAzureStyle(t *testing.T) {
	opts := Options("kairo.redis.cache.windows.net:6380,password=abc=,ssl=True,abortConnect=False")
	if opts.Addr != "kairo.redis.cache.windows.net:6380" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.Password != "abc=" {
		t.Fatalf("password should keep trailing '=': %q", opts.Password)
	}
	if opts.TLSConfig == nil {
		t.Fatal("ssl=True should enable TLS")
	}
}

func TestOptionsBareAddress(t *testing.T) {
	opts := Options("localhost:6379")
	if opts.Addr != "localhost:6379" || opts.Password != "" || opts.TLSConfig != nil {
		t.Fatalf("unexpected options %+v", opts)
	}
}
