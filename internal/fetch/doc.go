// Package fetch retrieves a web page and reduces it to the text the
// scorers read: the content of every <p> element, joined with a single
// space.
//
// Only http and https URLs are accepted. A response with a status outside
// 2xx is an error (*StatusError). The body is decoded using the charset
// declared by the server or the document, capped at a configurable size,
// parsed with golang.org/x/net/html and queried with goquery.
//
// Onion services are reachable only when the Fetcher was built with a Tor
// client (WithTorClient); otherwise ErrOnionRequiresTor is returned before
// any network activity.
package fetch
