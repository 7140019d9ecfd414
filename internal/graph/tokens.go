package graph

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoResourceToken is returned when the platform does not hand out a
// dedicated token for a resource.
var ErrNoResourceToken = errors.New("no resource token available")

// ResourceToken fetches the access token bound to a managed resource, such
// as a page, using the tenant's user token.
func ResourceToken(ctx context.Context, c Caller, userToken, resourceID string) (string, error) {
	body, err := c.Call(ctx, Request{
		Method: http.MethodGet,
		Path:   resourceID,
		Token:  userToken,
		Params: map[string]any{"fields": "access_token"},
	})
	if err != nil {
		return "", err
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		return "", ErrNoResourceToken
	}
	return token, nil
}
