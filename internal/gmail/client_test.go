package gmail

import (
	"context"
	"testing"

	"golang.org/x/oauth2"
)

func TestNewClientRequiresToken(t *testing.T) {
	conf := &oauth2.Config{ClientID: "id", ClientSecret: "secret"}

	tests := []struct {
		name string
		tok  *oauth2.Token
	}{
		{name: "nil token", tok: nil},
		{name: "empty access token", tok: &oauth2.Token{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(context.Background(), conf, tt.tok); err == nil {
				t.Error("NewClient() should fail without an access token")
			}
		})
	}
}
