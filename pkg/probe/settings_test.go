package probe

import (
	"errors"
	"testing"
	"time"
)

func validSettings() Settings {
	return Settings{
		ProbeInterval:         time.Second,
		JitterFactor:          0.2,
		NoSeedsStableMargin:   5 * time.Second,
		ProbingFailureTimeout: 30 * time.Second,
		SelfAddr:              "127.0.0.1:7070",
	}
}

func TestSettingsValidate(t *testing.T) {
	if err := validSettings().Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero interval", func(s *Settings) { s.ProbeInterval = 0 }},
		{"negative interval", func(s *Settings) { s.ProbeInterval = -time.Second }},
		{"negative jitter", func(s *Settings) { s.JitterFactor = -0.1 }},
		{"jitter above one", func(s *Settings) { s.JitterFactor = 1.5 }},
		{"zero margin", func(s *Settings) { s.NoSeedsStableMargin = 0 }},
		{"zero failure timeout", func(s *Settings) { s.ProbingFailureTimeout = 0 }},
		{"empty self address", func(s *Settings) { s.SelfAddr = "  " }},
	}

	for _, tc := range cases {
		s := validSettings()
		tc.mutate(&s)
		if err := s.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestNormalizeHostPort(t *testing.T) {
	for in, want := range map[string]string{
		"http://node1:8080": "node1:8080",
		"https://node1":     "node1:8080",
		"node1":             "node1:8080",
		"node1:9999":        "node1:9999",
		"http://node1":      "node1:8080",
		"10.0.0.1:8558":     "10.0.0.1:8558",
	} {
		if got := NormalizeHostPort(in, "8080"); got != want {
			t.Fatalf("NormalizeHostPort(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewRejectsSelfProbe(t *testing.T) {
	s := validSettings()
	s.SelfAddr = "http://127.0.0.1:7070"

	rec := &recorder{}
	p, err := New("127.0.0.1:7070", s, querierFunc(nil), rec)
	if !errors.Is(err, ErrSelfProbe) {
		t.Fatalf("New = (%v, %v), want ErrSelfProbe", p, err)
	}
	if n := rec.total(); n != 0 {
		t.Fatalf("notifier received %d calls before any probe", n)
	}

	// Default port fill must count as the same address too.
	s.SelfAddr = "127.0.0.1"
	if _, err := New("127.0.0.1:8080", s, querierFunc(nil), rec); !errors.Is(err, ErrSelfProbe) {
		t.Fatalf("port-defaulted self target accepted: %v", err)
	}
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	s := validSettings()
	if _, err := New("", s, querierFunc(nil), &recorder{}); err == nil {
		t.Fatal("empty target accepted")
	}
	if _, err := New("node1:8080", s, nil, &recorder{}); err == nil {
		t.Fatal("nil querier accepted")
	}
	if _, err := New("node1:8080", s, querierFunc(nil), nil); err == nil {
		t.Fatal("nil notifier accepted")
	}
}
