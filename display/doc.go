// Package display implements the display-object tree: transform and
// colour state, invalidation tracking, masks, target paths, the
// depth-ordered display list, and the movie clip, movie and shape node
// types driven by the stage.
package display
