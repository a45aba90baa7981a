package auth

import "testing"

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "plain path gains contention pragmas",
			path: "chat.db",
			want: "chat.db?_busy_timeout=5000&_journal_mode=WAL",
		},
		{
			name: "explicit dsn left untouched",
			path: "chat.db?_busy_timeout=100",
			want: "chat.db?_busy_timeout=100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sqliteDSN(tt.path); got != tt.want {
				t.Errorf("sqliteDSN(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
