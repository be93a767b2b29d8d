// Package ass reads and writes Advanced SubStation Alpha subtitle documents.
//
// Only what karaoke output needs is modelled: ordered script info fields, the
// raw style section, and events. Unknown sections are preserved verbatim so a
// user-supplied template round-trips through Load and Write.
package ass
