/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package fake

import (
	"hash/fnv"
	"math"
	"strings"
)

// Dimensions is the length of every vector the fake returns.
const Dimensions = 64

// topics pins a handful of words to dedicated axes so related texts land
// close together, the remaining words are hashed over the other axes.
//
//nolint:gochecknoglobals
var topics = map[string]int{
	"weather": 0, "rain": 0, "cold": 0, "sunny": 0, "today": 0, "bad": 0, "live": 0, "sweden": 0,
	"tim": 1, "cook": 1, "investing": 1, "ai": 1, "apple": 1, "software": 1,
}

const (
	topicAxes   = 2
	topicWeight = 4.0
)

// embed returns a unit length vector.
func embed(text string) []float64 {
	vector := make([]float64, Dimensions)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'")

		if axis, ok := topics[word]; ok {
			vector[axis] += topicWeight
			continue
		}

		hash := fnv.New32a()
		_, _ = hash.Write([]byte(word))

		vector[topicAxes+int(hash.Sum32()%(Dimensions-topicAxes))]++
	}

	var norm float64

	for _, v := range vector {
		norm += v * v
	}

	if norm == 0 {
		vector[len(vector)-1] = 1
		return vector
	}

	norm = math.Sqrt(norm)

	for i := range vector {
		vector[i] /= norm
	}

	return vector
}
