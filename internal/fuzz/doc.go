// Package fuzztests houses Go fuzz harnesses for the value runtime. They feed
// arbitrary text and operands through the integer parser, the arithmetic
// layer and the string buffers, check results against math/big and the
// standard library, and require the heap to be empty afterwards.
package fuzztests
