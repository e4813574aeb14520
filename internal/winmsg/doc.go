// Package winmsg expands screen-style status templates.
//
// A template is literal text interleaved with directives of the form
// %[+][-][0][digits][L]sel. Directives insert window and session facts
// (%n, %t, %w, %S ...), open conditional blocks (%? ... %: ... %?), change
// renditions (%{attrcolor} and %{-}), pad or truncate the line (%=, %<, %>)
// and splice in the output of external commands (%`). Output nested inside
// hardstatus strings and backtick results uses '\005' in place of '%'.
//
// Rendering produces a Line: the text plus the rendition changes keyed by
// byte offset. Line.Spans folds those changes into styled runs for encoders.
package winmsg
