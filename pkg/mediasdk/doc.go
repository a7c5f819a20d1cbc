/*
Package mediasdk is a client for the mediagate service.

# Client vs Session

Client covers the public endpoints: login, refresh, service token exchange,
the scope catalogue, health probes and fetching signed media links.

	client := mediasdk.NewClient("https://media.example.com")
	session, err := client.Login(ctx, mediasdk.LoginRequest{Email: e, Password: p})

A Session carries the access and refresh tokens from a login and refreshes
the access token shortly before it expires:

	page, err := session.ListMedia(ctx, 0)
	item, err := session.UploadMedia(ctx, "image/png", file)
	body, contentType, err := client.Fetch(ctx, item.Image.URL)

# Errors

Non-success responses are returned as svcerr.Response values, so callers
can branch on the service error code:

	if mediasdk.IsCode(err, svcerr.InsufficientScope) { ... }
*/
package mediasdk
