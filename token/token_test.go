package token

import "testing"

func TestKindStringCoversEveryKind(t *testing.T) {
	for k := Invalid; k <= RParen; k++ {
		if k.String() == "?" {
			t.Fatalf("Kind %d has no String() case", k)
		}
	}
}
