// Package playlist defines the channel playlist document and fetches it.
//
// A playlist is a JSON document published per channel:
//
//	{
//	  "generated_at": 1718000000,
//	  "version": "1718000000",
//	  "items": [
//	    {"segments": ["screens/atelier_0_p0.png", "screens/atelier_0_p1.png"], "display_duration": 30}
//	  ]
//	}
//
// Every field is optional. Defaults are applied when the values are read,
// not when the document is decoded, so a playlist round-trips unchanged:
//   - generated_at falls back to the time the document was fetched
//   - segments falls back to an empty list
//   - display_duration falls back to 10 seconds and never goes below 3
//
// The Fetcher disables caching on every request and treats any non-2xx
// status, transport error or decoding error as a FetchError.
package playlist
