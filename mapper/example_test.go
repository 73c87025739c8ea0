package mapper

import "fmt"

func ExampleNormalizeState() {
	for _, input := range []string{"Victoria", "melbourne", "qkd", "#N/A"} {
		fmt.Println(NormalizeState(input))
	}
	// Output:
	// VIC
	// VIC
	// QLD
	// NSW
}

func ExampleComposeAddress() {
	addr := NormalizeAddress("12 Smith St", "melboure", "Vic", "3000")
	fmt.Println(ComposeAddress(addr))
	// Output:
	// 12 Smith St, Melbourne VIC 3000
}
