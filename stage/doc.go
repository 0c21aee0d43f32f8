// Package stage drives a movie: it owns the level table, the prioritised
// action queue, interval timers, mouse and keyboard dispatch, keyboard
// focus, dragging and the loading of external movies.
//
// A Stage is single-threaded. The host calls Advance once per heartbeat
// and forwards input with MouseMoved, MouseClick and KeyEvent; every
// script callback triggered by those calls runs to completion before
// they return. Only the MovieLoader uses other goroutines, and the
// stage merely polls it for finished requests.
package stage
