// Copyright 2025 Corvusec
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

// repairJSON attempts to fix common JSON formatting issues from LLM
// responses. It specifically handles missing opening quotes before keys,
// e.g. `, risk_level":` becomes `, "risk_level":`.
func repairJSON(s string) string {
	runes := []rune(s)
	fixed := make([]rune, 0, len(runes)+8)

	i := 0
	for i < len(runes) {
		ch := runes[i]
		fixed = append(fixed, ch)
		i++

		if ch != '{' && ch != ',' {
			continue
		}

		// Skip whitespace after { or ,
		for i < len(runes) && (runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t') {
			fixed = append(fixed, runes[i])
			i++
		}

		// A bare word here may be a key missing its opening quote
		if i >= len(runes) || runes[i] == '"' || !isKeyRune(runes[i]) {
			continue
		}

		keyStart := i
		for i < len(runes) && isKeyRune(runes[i]) {
			i++
		}

		if i+1 < len(runes) && runes[i] == '"' && runes[i+1] == ':' {
			// Unquoted key confirmed: insert the missing quote
			fixed = append(fixed, '"')
		}
		fixed = append(fixed, runes[keyStart:i]...)
	}

	return string(fixed)
}

func isKeyRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}
