package proto

import (
	"errors"
	"testing"
)

func TestGameCodeToInt(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    int32
		wantErr bool
	}{
		{"v1 code", "CODE", 0x45444f43, false},
		{"v2 all first letter", "QQQQQQ", -0x80000000, false},
		{"v2 mixed", "QWQQQQ", -0x80000000 + 26, false},
		{"lowercase accepted", "code", 0x45444f43, false},
		{"wrong length", "ABC", 0, true},
		{"non-letter", "AB12", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GameCodeToInt(tt.code)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GameCodeToInt(%q) wantErr = %v, error = %v", tt.code, tt.wantErr, err)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidGameCode) {
				t.Errorf("GameCodeToInt(%q) want ErrInvalidGameCode, got = %v", tt.code, err)
			}
			if got != tt.want {
				t.Errorf("GameCodeToInt(%q) want = %d, got = %d", tt.code, tt.want, got)
			}
		})
	}
}

func TestGameCodeRoundTrip(t *testing.T) {
	for _, code := range []string{"QQQQQQ", "SKELDS", "AMONGU", "ABCD", "ZZZZ"} {
		value, err := GameCodeToInt(code)
		if err != nil {
			t.Fatalf("GameCodeToInt(%q) returned an unexpected error: %v", code, err)
		}
		if got := IntToGameCode(value); got != code {
			t.Errorf("round trip of %q produced %q", code, got)
		}
	}
}

func TestGenerateGameCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := GenerateGameCode()
		if code >= 0 {
			t.Fatalf("GenerateGameCode() produced a non-v2 code: %d", code)
		}
		if rendered := IntToGameCode(code); len(rendered) != 6 {
			t.Fatalf("GenerateGameCode() rendered to %q, want 6 letters", rendered)
		}
	}
}

func TestGenerateGameCodeV1(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := GenerateGameCodeV1()
		if code < 0 {
			t.Fatalf("GenerateGameCodeV1() produced a v2 code: %d", code)
		}
		rendered := IntToGameCode(code)
		if len(rendered) != 4 {
			t.Fatalf("GenerateGameCodeV1() rendered to %q, want 4 letters", rendered)
		}
		if roundTrip, err := GameCodeToInt(rendered); err != nil || roundTrip != code {
			t.Fatalf("v1 code %d did not round trip: got %d, err %v", code, roundTrip, err)
		}
	}
}
