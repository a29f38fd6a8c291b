// Package sigv4 computes AWS Signature Version 4 request signatures.
//
// The signer covers the subset of SigV4 that JSON APIs such as Amazon Bedrock
// runtime need: a POST (or any method) with a JSON body, signed over exactly
// three headers (content-type, host and x-amz-date). Query strings are not
// canonicalized and therefore must not be present on signed URLs.
//
// # Algorithm
//
//  1. Format the timestamp as YYYYMMDDTHHMMSSZ in UTC. The first eight
//     characters form the date stamp.
//
//  2. Hash the body with SHA-256 (lowercase hex).
//
//  3. Build the canonical request:
//
//     METHOD
//     /escaped/path
//     (empty query line)
//     content-type:application/json
//     host:<host>
//     x-amz-date:<timestamp>
//     (blank line closing the header block)
//     content-type;host;x-amz-date
//     <payload hash>
//
//  4. Build the credential scope date/region/service/aws4_request and the
//     string to sign: algorithm, timestamp, scope and the hex SHA-256 of the
//     canonical request, joined by newlines.
//
//  5. Derive the signing key by chaining HMAC-SHA256 over the date stamp,
//     region, service and the literal "aws4_request", starting from
//     "AWS4"+secret. Intermediate keys stay raw bytes.
//
//  6. The signature is hex(HMAC-SHA256(signingKey, stringToSign)).
//
// # Usage
//
//	u, _ := url.Parse("https://bedrock-runtime.us-east-1.amazonaws.com/model/m/invoke")
//	headers := sigv4.Sign(sigv4.Request{
//	    Method:      http.MethodPost,
//	    URL:         u,
//	    Body:        body,
//	    AccessKeyID: creds.AccessKeyID,
//	    SecretKey:   []byte(creds.SecretAccessKey),
//	    Region:      "us-east-1",
//	    Service:     "bedrock",
//	})
//	headers.Apply(req.Header)
//
// Every function in this package is pure: no I/O, no shared state, and the
// secret key is never retained after a call returns.
package sigv4
