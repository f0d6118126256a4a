package nbt

import "errors"

var ErrUnexpectedEOF = errors.New("nbt: unexpected end of buffer")
var ErrUnknownTagKind = errors.New("nbt: unknown tag kind")
var ErrUnexpectedEnd = errors.New("nbt: unexpected TAG_End")
var ErrNegativeLength = errors.New("nbt: negative length")

var ErrStringTooLong = errors.New("nbt: string longer than 65535 bytes")
var ErrNilTag = errors.New("nbt: nil tag")
