// Package formats provides parsers and writers for Budokai Tenkaichi 3
// skeletal animation files.
//
// An animation is a 116-byte header (magic, frame count and one body pointer
// per bone) followed by the keyframe bodies of the animated bones. All values
// are little-endian and pointers count 4-byte units from the file start.
package formats
