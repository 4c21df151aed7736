package app

import (
	"encoding/json"
	"testing"

	"github.com/hoshizora/content-embed-worker/internal/core/preprocess"
)

func TestSettingPayload(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{name: "valid object", key: "preprocess.post", value: `{"target_size":300}`},
		{name: "missing key", key: "", value: `{}`, wantErr: true},
		{name: "invalid json", key: "preprocess.post", value: `{target_size:}`, wantErr: true},
		{name: "empty value", key: "preprocess.post", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := settingPayload(tt.key, tt.value)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got payload %s", payload)
				}

				return
			}

			if err != nil {
				t.Fatalf("settingPayload: %v", err)
			}

			if string(payload) != tt.value {
				t.Errorf("payload = %s, want %s", payload, tt.value)
			}
		})
	}
}

func TestSettingPayloadDecodesAsOverride(t *testing.T) {
	payload, err := settingPayload("preprocess.comment", `{"target_size":120,"strategy":"sentence"}`)
	if err != nil {
		t.Fatalf("settingPayload: %v", err)
	}

	var o preprocess.Override
	if err := json.Unmarshal(payload, &o); err != nil {
		t.Fatalf("decode override: %v", err)
	}

	if o.TargetSize == nil || *o.TargetSize != 120 {
		t.Errorf("TargetSize = %v", o.TargetSize)
	}

	if o.Strategy == nil || *o.Strategy != "sentence" {
		t.Errorf("Strategy = %v", o.Strategy)
	}
}
