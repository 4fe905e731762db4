// Copyright (c) 2023 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// GenerateRandomInt generate a random int that is not determined
func GenerateRandomInt() int {
	source := rand.NewSource(time.Now().UnixNano())
	random := rand.New(source)

	return random.Intn(10000)
}

// MakeSessionID create new session ID
// example: checkout_1700000000000_1234
func MakeSessionID(identifiers ...string) string {
	parts := make([]string, 0, len(identifiers)+2)
	parts = append(parts, identifiers...)
	parts = append(parts,
		strconv.FormatInt(time.Now().UnixMilli(), 10),
		strconv.Itoa(GenerateRandomInt()),
	)

	return strings.Join(parts, "_")
}
