package config

type WorkerKeyStruct struct {
	DiscardFilesQueue string
}

var WorkerKey = &WorkerKeyStruct{
	DiscardFilesQueue: "discard_files_queue",
}
