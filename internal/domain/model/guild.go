package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidGuildToken is returned for tokens that do not name a realm and a guild.
var ErrInvalidGuildToken = errors.New("invalid guild token")

// GuildIdentifier is a parsed guild query token such as
// "region=eu&realm=Silvermoon&name=TestGuild".
type GuildIdentifier struct {
	Token  string
	Region string
	Realm  string
	Name   string
}

// ParseGuildIdentifier parses token, filling Region with defaultRegion when absent.
func ParseGuildIdentifier(token, defaultRegion string) (GuildIdentifier, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return GuildIdentifier{}, fmt.Errorf("%w: empty", ErrInvalidGuildToken)
	}

	values, err := url.ParseQuery(token)
	if err != nil {
		return GuildIdentifier{}, fmt.Errorf("%w: %q: %v", ErrInvalidGuildToken, token, err)
	}

	id := GuildIdentifier{
		Token:  token,
		Region: strings.ToLower(strings.TrimSpace(values.Get("region"))),
		Realm:  strings.TrimSpace(values.Get("realm")),
		Name:   strings.TrimSpace(values.Get("name")),
	}
	if id.Region == "" {
		id.Region = strings.ToLower(defaultRegion)
	}
	if id.Realm == "" || id.Name == "" {
		return GuildIdentifier{}, fmt.Errorf("%w: %q: realm and name are required", ErrInvalidGuildToken, token)
	}
	return id, nil
}

// Key is the identity used to detect duplicate guild lines.
func (g GuildIdentifier) Key() string {
	return g.Region + "/" + g.Realm + "/" + g.Name
}

func (g GuildIdentifier) String() string {
	return fmt.Sprintf("%s (%s-%s)", g.Name, g.Realm, g.Region)
}
