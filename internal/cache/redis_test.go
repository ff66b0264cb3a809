package cache

import "testing"

func TestSessionKey(t *testing.T) {
	if got := SessionKey("+15550001111"); got != "session:+15550001111" {
		t.Errorf("SessionKey = %q", got)
	}
}
