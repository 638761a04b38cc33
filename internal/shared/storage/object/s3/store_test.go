package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "abc123/17000.json", want: "abc123/17000.json"},
		{name: "simple prefix", prefix: "root", key: "abc123/17000.json", want: "root/abc123/17000.json"},
		{name: "prefix trailing slash", prefix: "root/", key: "abc123/17000.json", want: "root/abc123/17000.json"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/abc123/17000.json", want: "root/abc123/17000.json"},
		{name: "nested prefix", prefix: "root/sub", key: "abc123/17000.json", want: "root/sub/abc123/17000.json"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}
