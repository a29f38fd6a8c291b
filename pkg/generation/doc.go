// Package generation turns a product description into a listing.
//
// Service.Generate builds the listing prompt, sends it to the selected
// provider, recovers the title and specs from the model's output with
// package recovery and persists the attempt, successful or not, to a
// storage.Store. Output that cannot be interpreted yields a
// *recovery.RecoveryFailedError carrying a bounded preview of the text.
package generation
