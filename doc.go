// Package reviews implements a review aggregation backend: users rate and
// discuss titles grouped by category and genre, writing one review per title
// and comments on reviews.
//
// Authorization:
//   - Every service operation receives the acting principal (Actor), the
//     request Method and, when relevant, the target object. Policy values
//     decide at action level first and object level second; handlers never
//     compare roles directly.
//
// Authentication:
//   - Passwordless. EmailAuthenticator.RequestCode derives a confirmation code
//     from the current user state and mails it; RedeemCode checks the code,
//     activates the account and returns signed bearer tokens. Codes are never
//     stored. Any change to the state that feeds the code (activation, login
//     timestamp, role, email) invalidates outstanding codes.
//
// Activity sinks:
//   - ActivitySink receives best-effort audit events for the auth flow and
//     user administration. Sink errors are logged and never fail a request.
//
// Storage:
//   - Bun models and repositories for sqlite and postgres. Schema ships as
//     embedded SQL migrations, see GetMigrationsFS and Migrate.
package reviews
