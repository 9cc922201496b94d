package services

import (
	"bufio"
	"os"
	"strings"
)

// LoadBlackList reads one common password per line into a set.
func LoadBlackList(filePath string) (map[string]bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	blackList := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			blackList[line] = true
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return blackList, nil
}

// DefaultBlackList is used when no blacklist file is configured.
func DefaultBlackList() map[string]bool {
	common := []string{
		"12345678", "123456789", "1234567890", "password", "Password1!", "Passw0rd!",
		"P@ssw0rd", "P@ssword1", "Qwerty123!", "qwertyuiop", "iloveyou", "Welcome1!",
		"Admin123!", "Abc12345!", "Letmein1!", "Football1!",
	}
	blackList := make(map[string]bool, len(common))
	for _, p := range common {
		blackList[p] = true
	}
	return blackList
}
