package structbin_test

import (
	"fmt"
	"log"

	"github.com/chaisql/structbin"
)

func Example() {
	s, err := structbin.ParseSchema([]byte(`{"name": "string", "size": ["uint8", "uint8"]}`))
	if err != nil {
		log.Fatal(err)
	}

	v := structbin.NewObjectValue().
		Set("name", "brick").
		Set("size", structbin.NewArrayValue(2, 4))

	data, err := structbin.Encode(v, s, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d bytes\n", len(data))

	got, err := structbin.Decode(data, s, nil)
	if err != nil {
		log.Fatal(err)
	}

	out, err := structbin.MarshalJSON(got)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))

	// Output:
	// 9 bytes
	// {"name": "brick", "size": [2, 4]}
}

func ExampleObject() {
	// a linked list
	node := structbin.Object(structbin.Field("value", structbin.Scalar(structbin.Int32)))
	node.Add("next", node)

	s, err := structbin.NewSchema(node)
	if err != nil {
		log.Fatal(err)
	}

	// a list of one element, pointing to itself
	v := structbin.NewObjectValue().Set("value", 42)
	v.Set("next", v)

	data, err := structbin.Encode(v, s, nil)
	if err != nil {
		log.Fatal(err)
	}

	got, err := structbin.Decode(data, s, nil)
	if err != nil {
		log.Fatal(err)
	}

	obj := got.(*structbin.ObjectValue)
	value, _ := obj.Get("value")
	next, _ := obj.Get("next")
	fmt.Println(value, next == got)

	// Output: 42 true
}
