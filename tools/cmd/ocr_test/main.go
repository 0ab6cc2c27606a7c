// Manual check: run OCR + parsing on one screenshot and dump what came out.
package main

import (
	"fmt"
	"os"

	"divetrack/pkg/ocr"
	"divetrack/pkg/statparse"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: go run ./tools/cmd/ocr_test <screenshot.png>")
		os.Exit(2)
	}
	p := os.Args[1]
	text, err := ocr.RecognizeScreenshot(p)
	if err != nil {
		fmt.Printf("RecognizeScreenshot err=%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("--- recognized text ---\n%s\n--- end ---\n", text)
	res := statparse.Parse(text)
	fmt.Printf("layout=%s\n", statparse.DetectLayout(text))
	if res.PlayerName != nil {
		fmt.Printf("player_name=%s\n", *res.PlayerName)
	}
	for _, k := range statparse.AllStatKeys {
		if v, ok := res.Stats[k]; ok {
			fmt.Printf("%-28s %10d  (%s)\n", k, v, res.Confidence[k])
		}
	}
}
