// Quill turns product descriptions into listing copy using a pluggable
// set of AI text-generation providers.
//
// Usage:
//
//	# Start the API server
//	quill run --config config.yaml
//
//	# Sign a Bedrock request with credentials from the environment
//	quill sign --url https://bedrock-runtime.us-east-1.amazonaws.com/model/x/invoke --body '{}'
//
//	# Recover a listing from raw model output
//	quill recover output.txt
//
//	# Inspect stored generations
//	quill generations list --status failed
package main

func main() {
	Execute()
}
