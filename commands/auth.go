package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

var ErrNotAuthorised = errors.New("not authorised")

// authorize returns the Google API client options for the credentials file. Service account credentials are
// used as is. OAuth2 client credentials need a token previously cached by the 'authorise' command.
func authorize(ctx context.Context, credentials, scope, tokens string) ([]option.ClientOption, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, err
	}

	if kind(b) == "service_account" {
		creds, err := google.CredentialsFromJSON(ctx, b, scope)
		if err != nil {
			return nil, err
		}

		return []option.ClientOption{option.WithCredentials(creds)}, nil
	}

	config, err := google.ConfigFromJSON(b, scope)
	if err != nil {
		return nil, err
	}

	file := tokenFile(credentials, scope, tokens)
	token, err := tokenFromFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w (%v) - run '%v authorise' to authorise access", ErrNotAuthorised, err, APP)
	}

	// persist refreshed tokens so that the refresh token survives across runs
	source := &cachedTokenSource{
		file:   file,
		token:  token,
		source: config.TokenSource(ctx, token),
	}

	return []option.ClientOption{option.WithTokenSource(source)}, nil
}

func kind(credentials []byte) string {
	var v struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(credentials, &v); err != nil {
		return ""
	}

	return v.Type
}

func tokenFile(credentials, scope, tokens string) string {
	_, file := filepath.Split(credentials)
	name := strings.TrimSuffix(file, filepath.Ext(file))

	if strings.HasPrefix(scope, SHEETS) {
		return filepath.Join(tokens, fmt.Sprintf("%s.sheets", name))
	}

	return filepath.Join(tokens, fmt.Sprintf("%s.tokens", name))
}

type cachedTokenSource struct {
	file   string
	token  *oauth2.Token
	source oauth2.TokenSource
}

func (s *cachedTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	if token.AccessToken != s.token.AccessToken {
		s.token = token
		if err := saveToken(s.file, token); err != nil {
			warnf("unable to cache refreshed token (%v)", err)
		}
	}

	return token, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	token := oauth2.Token{}
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

func saveToken(file string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}
