// Package google handles OAuth2 authentication against Google APIs.
//
// Credentials are loaded from two local files: an OAuth client secret JSON
// (as downloaded from the Google Cloud console for a desktop application)
// and a cached token file. If no cached token exists, Authorize runs an
// interactive consent flow through the user's browser and persists the
// resulting token to disk. Refreshes are handled transparently by the
// oauth2 token source.
//
// Both file paths are explicit configuration; nothing in this package reads
// process-wide state.
package google
