package services

import "testing"

func TestSecretVerifier(t *testing.T) {
	v := NewSecretVerifier("s3cr3t-value-0123456789")

	tests := []struct {
		name      string
		presented string
		want      bool
	}{
		{"exact", "s3cr3t-value-0123456789", true},
		{"empty", "", false},
		{"prefix", "s3cr3t", false},
		{"longer", "s3cr3t-value-0123456789x", false},
		{"case differs", "S3CR3T-value-0123456789", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.Verify(tt.presented); got != tt.want {
				t.Errorf("Verify(%q) = %v, want %v", tt.presented, got, tt.want)
			}
		})
	}
}

func TestSecretVerifier_EmptyConfiguredSecretRejectsAll(t *testing.T) {
	v := NewSecretVerifier("")
	if v.Verify("") {
		t.Error("empty secret must not verify against empty configuration")
	}
	if v.Verify("anything") {
		t.Error("empty configuration must reject every secret")
	}

	var nilVerifier *SecretVerifier
	if nilVerifier.Verify("anything") {
		t.Error("nil verifier must fail closed")
	}
}
