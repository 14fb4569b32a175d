package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/kaspanet/chainstore/domain/blockindex"
	"github.com/kaspanet/chainstore/infrastructure/logger"
	"github.com/pkg/errors"
)

type command struct {
	name        string
	parameters  []string
	description string
	run         func(ctx context.Context, store *blockindex.Store, args []string) (string, error)
}

var commands = []*command{
	{
		name:        "info",
		parameters:  []string{"hash"},
		description: "Print the index record of a block",
		run:         runInfo,
	},
	{
		name:        "block",
		parameters:  []string{"hash"},
		description: "Print the hex encoded payload of a block",
		run:         runBlock,
	},
	{
		name:        "exists",
		parameters:  []string{"hash"},
		description: "Print whether a block is stored",
		run:         runExists,
	},
	{
		name:        "tag",
		parameters:  []string{"name"},
		description: "Print the block a tag points at",
		run:         runTag,
	},
	{
		name:        "settag",
		parameters:  []string{"name", "hash"},
		description: "Point a tag at a stored block",
		run:         runSetTag,
	},
	{
		name:        "ancestor",
		parameters:  []string{"hash", "distance"},
		description: "Print the index record of the ancestor at the given distance",
		run:         runAncestor,
	},
	{
		name:        "isancestor",
		parameters:  []string{"ancestor", "descendant"},
		description: "Print the distance between two blocks if one descends from the other",
		run:         runIsAncestor,
	},
	{
		name:        "range",
		parameters:  []string{"from", "to"},
		description: "Print the index records of the blocks after from up to and including to",
		run:         runRange,
	},
}

func findCommand(name string) (*command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return nil, false
}

func printCommands() {
	fmt.Println("Commands:")
	for _, cmd := range commands {
		parameters := make([]string, len(cmd.parameters))
		for i, parameter := range cmd.parameters {
			parameters[i] = fmt.Sprintf("<%s>", parameter)
		}
		fmt.Printf("\t%s %s\n\t\t%s\n", cmd.name, strings.Join(parameters, " "), cmd.description)
	}
}

func runCommand(ctx context.Context, store *blockindex.Store, commandAndParameters []string) (string, error) {
	name, args := commandAndParameters[0], commandAndParameters[1:]
	cmd, ok := findCommand(name)
	if !ok {
		return "", errors.Errorf("unknown command '%s'. Use --list-commands to list all commands", name)
	}
	if len(args) != len(cmd.parameters) {
		return "", errors.Errorf("command '%s' takes %d parameters (%s), got %d",
			name, len(cmd.parameters), strings.Join(cmd.parameters, ", "), len(args))
	}
	log.Debugf("Running command %s %s", name, strings.Join(args, " "))
	return cmd.run(ctx, store, args)
}

func parseHash(parameter string, value string) (blockindex.Hash, error) {
	hash, err := blockindex.NewHashFromString(value)
	if err != nil {
		return blockindex.ZeroHash, errors.Wrapf(err, "invalid %s", parameter)
	}
	return hash, nil
}

func runInfo(ctx context.Context, store *blockindex.Store, args []string) (string, error) {
	hash, err := parseHash("hash", args[0])
	if err != nil {
		return "", err
	}
	info, err := store.GetBlockInfo(ctx, hash)
	if err != nil {
		return "", err
	}
	return info.String(), nil
}

func runBlock(ctx context.Context, store *blockindex.Store, args []string) (string, error) {
	hash, err := parseHash("hash", args[0])
	if err != nil {
		return "", err
	}
	serialized, err := store.GetBlockBytes(ctx, hash)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(serialized), nil
}

func runExists(ctx context.Context, store *blockindex.Store, args []string) (string, error) {
	hash, err := parseHash("hash", args[0])
	if err != nil {
		return "", err
	}
	exists, err := store.BlockExists(ctx, hash)
	if err != nil {
		return "", err
	}
	return strconv.FormatBool(exists), nil
}

func runTag(ctx context.Context, store *blockindex.Store, args []string) (string, error) {
	hash, found, err := store.GetTag(ctx, args[0])
	if err != nil {
		return "", err
	}
	if !found {
		return "", errors.Errorf("tag %s is not set", args[0])
	}
	return hash.String(), nil
}

func runSetTag(ctx context.Context, store *blockindex.Store, args []string) (string, error) {
	hash, err := parseHash("hash", args[1])
	if err != nil {
		return "", err
	}
	err = store.PutTag(ctx, args[0], hash)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s -> %s", args[0], hash), nil
}

func runAncestor(ctx context.Context, store *blockindex.Store, args []string) (string, error) {
	hash, err := parseHash("hash", args[0])
	if err != nil {
		return "", err
	}
	distance, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return "", errors.Wrap(err, "invalid distance")
	}
	info, err := store.NthAncestor(ctx, hash, distance)
	if err != nil {
		return "", err
	}
	return info.String(), nil
}

func runIsAncestor(ctx context.Context, store *blockindex.Store, args []string) (string, error) {
	ancestor, err := parseHash("ancestor", args[0])
	if err != nil {
		return "", err
	}
	descendant, err := parseHash("descendant", args[1])
	if err != nil {
		return "", err
	}
	distance, found, err := store.IsAncestor(ctx, ancestor, descendant)
	if err != nil {
		return "", err
	}
	if !found {
		return "false", nil
	}
	return fmt.Sprintf("true (distance %d)", distance), nil
}

func runRange(ctx context.Context, store *blockindex.Store, args []string) (string, error) {
	from, err := parseHash("from", args[0])
	if err != nil {
		return "", err
	}
	to, err := parseHash("to", args[1])
	if err != nil {
		return "", err
	}
	iterator, err := store.IterateRange(ctx, from, to)
	if err != nil {
		return "", err
	}
	defer iterator.Close()

	onEnd := logger.LogAndMeasureExecutionTime(log, "runRange")
	defer onEnd()

	var lines []string
	for iterator.Next() {
		info, err := iterator.Get()
		if err != nil {
			return "", err
		}
		lines = append(lines, info.String())
	}
	return strings.Join(lines, "\n"), nil
}
