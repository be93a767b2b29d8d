package forcealign

// mmsAlignerScript reads a JSON list of words, aligns them against the audio
// with torchaudio's MMS_FA bundle, and writes token spans per word.
// argv: audio transcript.json output.json device
const mmsAlignerScript = `
import json
import sys

import torch
import torchaudio
from torchaudio.pipelines import MMS_FA as bundle


def main():
    audio_path, transcript_path, output_path, device = sys.argv[1:5]
    with open(transcript_path, "r", encoding="utf-8") as handle:
        words = json.load(handle)

    waveform, sample_rate = torchaudio.load(audio_path)
    if waveform.size(0) > 1:
        waveform = waveform.mean(0, keepdim=True)
    if sample_rate != bundle.sample_rate:
        waveform = torchaudio.functional.resample(waveform, sample_rate, bundle.sample_rate)
        sample_rate = bundle.sample_rate

    model = bundle.get_model(with_star=False).to(device)
    tokenizer = bundle.get_tokenizer()
    aligner = bundle.get_aligner()
    labels = bundle.get_labels(star=None)

    with torch.inference_mode():
        emission, _ = model(waveform.to(device))
        token_spans = aligner(emission[0], tokenizer(words))

    chunks = []
    for spans in token_spans:
        chunks.append([
            {"token": labels[span.token], "start": int(span.start), "end": int(span.end), "score": float(span.score)}
            for span in spans
        ])

    payload = {
        "num_frames": int(emission.size(1)),
        "num_samples": int(waveform.size(1)),
        "sample_rate": int(sample_rate),
        "chunks": chunks,
    }
    with open(output_path, "w", encoding="utf-8") as handle:
        json.dump(payload, handle)


if __name__ == "__main__":
    main()
`
