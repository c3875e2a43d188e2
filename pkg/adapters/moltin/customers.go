package moltin

import (
	"context"
	"net/http"
)

type customerRequest struct {
	Data struct {
		Type  string `json:"type"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"data"`
}

// RecordEmail creates a customer named after the user id.
func (c *Client) RecordEmail(ctx context.Context, userID, email string) error {
	var body customerRequest
	body.Data.Type = "customer"
	body.Data.Name = userID
	body.Data.Email = email
	return c.call(ctx, http.MethodPost, "/v2/customers", body, nil)
}
