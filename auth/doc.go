/*
Package auth is the authentication subsystem of a basecamp app.

It is constructed only when the auth capability is on;
deployments without an AUTH_SECRET answer auth routes
with NotConfiguredHandler instead of a half-built Service.

Session persistence follows the strategy the capability snapshot derives:
database-backed session records when Postgres is wired, stateless JWTs otherwise.
OAuth token exchange is delegated to the golang.org/x/oauth2 client.
*/
package auth
