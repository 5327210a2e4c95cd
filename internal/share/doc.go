// Package share issues and verifies expiring links to a stored card.
//
// A link carries an HS256-signed token naming one card id. Holders of the link
// can fetch that card's vCard (or its QR code) without the API bearer token
// until the token expires. Tokens are stateless; rotating api.share_secret
// revokes every outstanding link.
package share
