// Package reconcile decides, once per session, how a freshly fetched
// canonical source relates to what the content store already holds.
//
// The protocol runs in strict order; each step gates the next:
//
//  1. compare the fetched source with the stored canonical entry
//  2. seed the working copy if it does not exist yet
//  3. store the fetched source when it changed
//  4. when it changed and a working copy already existed, ask the user
//     whether to keep their changes or reset to the new source
//  5. return the working-copy path to open
//
// The working copy is only ever overwritten after the user picks "reset".
// Cancelling or dismissing the prompt keeps the user's changes.
package reconcile
