// Package textutil provides filename and title sanitization helpers.
package textutil
