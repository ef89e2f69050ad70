/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package opts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOrDefault(t *testing.T) {
	t.Setenv("IRGRAPH_TEST_VALUE", "")
	require.Equal(t, 42, parseOrDefault("IRGRAPH_TEST_VALUE", 42, 1))
	t.Setenv("IRGRAPH_TEST_VALUE", "0x100")
	require.Equal(t, 256, parseOrDefault("IRGRAPH_TEST_VALUE", 42, 1))
	t.Setenv("IRGRAPH_TEST_VALUE", "1")
	require.Panics(t, func() { parseOrDefault("IRGRAPH_TEST_VALUE", 42, 1) })
	t.Setenv("IRGRAPH_TEST_VALUE", "abc")
	require.Panics(t, func() { parseOrDefault("IRGRAPH_TEST_VALUE", 42, 1) })
}

func TestOptions_CanIterate(t *testing.T) {
	o := GetDefaultOptions()
	require.True(t, o.CanIterate(0))
	o.MaxCanonIterations = 4
	require.True(t, o.CanIterate(3))
	require.False(t, o.CanIterate(4))
	o.MaxCanonIterations = 0
	require.True(t, o.CanIterate(1 << 30))
}
