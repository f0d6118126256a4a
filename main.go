package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/astei/ldbtools/nbt"
	"github.com/astei/ldbtools/subchunk"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	worldFlag = &cli.StringFlag{
		Name:     "world",
		Aliases:  []string{"w"},
		Usage:    "world directory, the one containing level.dat and db/",
		Required: true,
	}
	chunkFlags = []cli.Flag{
		&cli.IntFlag{Name: "x", Usage: "chunk x coordinate"},
		&cli.IntFlag{Name: "z", Usage: "chunk z coordinate"},
		&cli.IntFlag{Name: "y", Usage: "subchunk index"},
		&cli.StringFlag{Name: "dim", Value: "overworld", Usage: "overworld, nether, end or a dimension id"},
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "ldbtools",
		Usage: "inspect and edit the LevelDB of a Minecraft Bedrock world",
		Flags: []cli.Flag{
			worldFlag,
			&cli.BoolFlag{Name: "verbose", Usage: "log debug messages"},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelInfo
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level})))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "blocks",
				Usage: "list the names of all blocks used in the world",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Usage: "decoding goroutines, 0 for one per CPU"},
				},
				Action: withWorld(true, blocksCommand),
			},
			{
				Name:   "dump",
				Usage:  "print the palettes of a subchunk and the block entities of its chunk",
				Flags:  chunkFlags,
				Action: withWorld(true, dumpCommand),
			},
			{
				Name:  "sphere",
				Usage: "replace a subchunk with a hollow sphere",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "radius", Value: 7, Usage: "sphere radius in blocks"},
					&cli.StringFlag{Name: "block", Value: "minecraft:glass", Usage: "block the sphere is made of"},
				}, chunkFlags...),
				Action: withWorld(false, sphereCommand),
			},
			{
				Name:  "export",
				Usage: "write every subchunk of the world to a snapshot file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "snapshot file to create"},
					&cli.StringFlag{Name: "compression", Value: "zstd", Usage: "none, snappy, lz4 or zstd"},
				},
				Action: withWorld(true, exportCommand),
			},
			{
				Name:      "restore",
				Usage:     "write the subchunks of a snapshot file back into the world",
				ArgsUsage: "<snapshot>",
				Action:    withWorld(false, restoreCommand),
			},
		},
	}
}

func withWorld(readOnly bool, action func(*cli.Context, *BedrockWorld) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		o := DefaultWorldOptions()
		o.ReadOnly = readOnly
		world, err := OpenBedrockWorld(c.String("world"), o)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer world.Close()

		if err = action(c, world); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return nil
	}
}

func chunkFromFlags(c *cli.Context) (ChunkCoord, int8, error) {
	dim, err := ParseDimension(c.String("dim"))
	if err != nil {
		return ChunkCoord{}, 0, err
	}
	y := c.Int("y")
	if y < -128 || y > 127 {
		return ChunkCoord{}, 0, fmt.Errorf("subchunk index %d out of range", y)
	}
	return ChunkCoord{X: int32(c.Int("x")), Z: int32(c.Int("z")), Dimension: dim}, int8(y), nil
}

func blocksCommand(c *cli.Context, world *BedrockWorld) error {
	names, err := world.UniqueBlocks(c.Int("workers"))
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(c.App.Writer, name)
	}
	return nil
}

func dumpCommand(c *cli.Context, world *BedrockWorld) error {
	coord, y, err := chunkFromFlags(c)
	if err != nil {
		return err
	}
	r, err := world.SubChunk(coord, y)
	if err != nil {
		return err
	}
	writeRecord(c.App.Writer, coord, r)

	entities, err := world.BlockEntities(coord)
	if errors.Is(err, ErrNoBlockEntities) {
		return nil
	} else if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%d block entities\n", len(entities))
	for _, e := range entities {
		fmt.Fprint(c.App.Writer, nbt.Sprint(e))
	}
	return nil
}

func writeRecord(out io.Writer, coord ChunkCoord, r *subchunk.Record) {
	fmt.Fprintf(out, "subchunk %s y=%d (version %d, %d storages)\n", coord, r.Y, r.Version, len(r.Storages))
	for i, s := range r.Storages {
		fmt.Fprintf(out, "storage %d: %d palette entries\n", i, len(s.Palette))
		for j, state := range s.Palette {
			fmt.Fprintf(out, "  %d: %s\n", j, state)
		}
	}
}

func sphereCommand(c *cli.Context, world *BedrockWorld) error {
	coord, y, err := chunkFromFlags(c)
	if err != nil {
		return err
	}
	replaced, err := world.Store().Has(SubChunkKey(coord, y))
	if err != nil {
		return err
	}
	s := subchunk.New(subchunk.NewBlockState("minecraft:air"), subchunk.NewBlockState(c.String("block")))
	s.Sphere(subchunk.Point{X: 7, Y: 7, Z: 7}, c.Int("radius"), 1)
	if err = world.PutSubChunk(coord, y, subchunk.NewRecord(y, s)); err != nil {
		return err
	}
	slog.Info("wrote sphere", "chunk", coord.String(), "y", y, "block", c.String("block"), "replaced", replaced)
	return nil
}

func exportCommand(c *cli.Context, world *BedrockWorld) error {
	compression, err := ParseSnapshotCompression(c.String("compression"))
	if err != nil {
		return err
	}
	f, err := os.Create(c.String("out"))
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := world.WriteSnapshot(f, compression)
	if err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "exported %d columns to %s\n", n, c.String("out"))
	return nil
}

func restoreCommand(c *cli.Context, world *BedrockWorld) error {
	if c.NArg() != 1 {
		return errors.New("expected a snapshot file")
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	columns, err := ReadSnapshot(f, info.Size())
	if err != nil {
		return err
	}
	n, err := world.RestoreSnapshot(columns)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "restored %d subchunks\n", n)
	return nil
}
