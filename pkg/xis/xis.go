package xis

import (
	"reflect"

	"github.com/matryer/is"
)

// XIs extends matryer/is with a couple of collection assertions.
type XIs struct {
	is *is.I
}

func New(i *is.I) XIs {
	return XIs{is: i}
}

// Contains asserts that the given slice holds at least one
// element equal to the given value.
func (x XIs) Contains(list, item interface{}) {
	x.is.Helper()
	lv := reflect.ValueOf(list)
	if lv.Kind() != reflect.Slice {
		x.is.Fail()
		return
	}

	for i := 0; i < lv.Len(); i++ {
		if reflect.DeepEqual(lv.Index(i).Interface(), item) {
			return
		}
	}
	x.is.Fail()
}

// NotContains asserts that the given slice holds no element
// equal to the given value.
func (x XIs) NotContains(list, item interface{}) {
	x.is.Helper()
	lv := reflect.ValueOf(list)
	if lv.Kind() != reflect.Slice {
		x.is.Fail()
		return
	}

	for i := 0; i < lv.Len(); i++ {
		if reflect.DeepEqual(lv.Index(i).Interface(), item) {
			x.is.Fail()
			return
		}
	}
}
