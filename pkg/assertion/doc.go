// Package assertion defines the remote identity provider's session claim
// and the validation rules applied to it before any account action is taken.
//
// The provider reports session state as a JSON object. The minimal
// unauthenticated form is:
//
//	{"authenticated": false}
//
// and the authenticated form is:
//
//	{"username": "chr15m", "admin": false, "authenticated": true,
//	 "email": "chrism@mccormick.cx", "avatar": "/media/img/avatar.png"}
//
// Parse distinguishes three outcomes: a valid authenticated assertion, the
// normal not-logged-in case (ErrUnauthenticated), and a structurally invalid
// response (ErrMalformedResponse). Callers must treat the latter two as a
// deny; only a non-nil Assertion may drive account reconciliation.
package assertion
